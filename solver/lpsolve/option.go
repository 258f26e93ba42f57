package lpsolve

import "go.uber.org/zap"

type Option func(*Handle) error

// WithLogger routes the library's log output to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handle) error {
		h.logger = logger

		return nil
	}
}
