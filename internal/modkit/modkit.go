package modkit

import "shiftsync/internal/modkit/module"

// Module is the common surface for modules that expose ports
type Module = module.Module

// Builder constructs a Module from shared deps and options
// bad configuration surfaces as an error rather than a panic
type Builder func(Deps, ...Option) (Module, error)
