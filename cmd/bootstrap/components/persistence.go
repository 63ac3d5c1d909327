package components

import (
	"shareit/internal/infra/db"
	"shareit/internal/infra/readstore"
	"shareit/internal/infra/uow"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewDBTX,
		// UnitOfWork binds write repositories to a transaction internally;
		// read stores run against the pool.
		uow.NewPostgresUoW,
		readstore.NewBookingReadStore,
		readstore.NewItemReadStore,
		readstore.NewUserReadStore,
		readstore.NewCommentReadStore,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
