package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/g3a/htpclient/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		ctx       func() context.Context
		kv        log.Kv
		expValues log.Kv
	}{
		"Empty context should only have the new values.": {
			ctx:       context.Background,
			kv:        log.Kv{"task": "abc123"},
			expValues: log.Kv{"task": "abc123"},
		},
		"Existing values should be merged and overridden.": {
			ctx: func() context.Context {
				return log.CtxWithValues(context.Background(), log.Kv{"task": "old", "op": "search"})
			},
			kv:        log.Kv{"task": "abc123"},
			expValues: log.Kv{"task": "abc123", "op": "search"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := log.CtxWithValues(test.ctx(), test.kv)
			assert.Equal(t, test.expValues, log.ValuesFromCtx(ctx))
		})
	}
}

func TestValuesFromCtxWithoutValues(t *testing.T) {
	assert.Equal(t, log.Kv{}, log.ValuesFromCtx(context.Background()))
}
