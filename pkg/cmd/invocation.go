// Package cmd is the transport-neutral command core. A command has a name, a
// description and Run; adapters decide how it is registered and dispatched.
package cmd

import "context"

// Invocation is what an adapter hands to a command. Data carries the
// adapter's own context, e.g. a Discord slash interaction.
type Invocation struct {
	Args []string
	Data any
}

type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
