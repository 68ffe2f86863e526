package cmd

type Middleware func(Command) Command

// Apply wraps c with mws. The first middleware runs outermost.
func Apply(c Command, mws ...Middleware) Command {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
