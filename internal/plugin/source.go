package plugin

import (
	"context"

	"tucan/internal/domain"
)

// Source is the capability every data source implements. The worker handles
// registration, searching and the timeout loop; a source only produces entries
// and performs activation side effects.
type Source interface {
	// Info identifies the plugin
	Info() domain.PluginInfo

	// Entries derives the current entry set. It is called once before
	// registration and again on every timeout.
	Entries(ctx context.Context) ([]domain.Entry, error)

	// Activate performs the side effect for entry. exit reports whether the
	// application should shut down afterwards.
	Activate(ctx context.Context, entry domain.Entry) (exit bool, err error)
}

// Closer is implemented by sources that hold resources such as file watchers
type Closer interface {
	Close() error
}
