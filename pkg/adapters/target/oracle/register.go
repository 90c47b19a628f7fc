package oracle

import (
	"context"

	"go.uber.org/zap"

	"github.com/loadbridge/loadbridge/pkg/adapters/target"
)

func init() {
	target.Register(target.Registration{
		Info: target.Info{
			Name:        "oracle",
			DisplayName: "Oracle Database",
			Description: "Load into Oracle 12c+ with MERGE upserts",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (target.Conn, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewAdapter(ctx, cfg, logger)
		},
	})
}
