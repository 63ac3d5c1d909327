//go:build unit

package errs_test

import (
	"errors"
	"testing"

	"shareit/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
)

func TestMarkAndIs(t *testing.T) {
	cause := errs.New("unknown state: FOO")
	sentinel := errs.New("unknown booking state")

	t.Run("マーカーはerrs.Isで見える", func(t *testing.T) {
		marked := errs.Mark(cause, sentinel)

		assert.True(t, errs.Is(marked, sentinel))
		assert.True(t, errs.Is(marked, cause))
		// メッセージは原因側のまま
		assert.Equal(t, cause.Error(), marked.Error())
	})

	t.Run("標準ライブラリのIsはマーカーを見ない", func(t *testing.T) {
		// ハンドラ層で errors.Is に戻すとセンチネル照合が壊れる、の固定化
		marked := errs.Mark(cause, sentinel)

		assert.False(t, errors.Is(marked, sentinel))
		assert.True(t, errors.Is(marked, cause), "原因チェーンは標準のIsでも辿れる")
	})

	t.Run("nilをMarkするとセンチネルそのもの", func(t *testing.T) {
		assert.Same(t, sentinel, errs.Mark(nil, sentinel))
	})

	t.Run("Wrapしてもマーカーは残る", func(t *testing.T) {
		wrapped := errs.Wrap(errs.Mark(cause, sentinel), "listing failed")
		assert.True(t, errs.Is(wrapped, sentinel))
	})
}
