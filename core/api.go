package core

import "github.com/gorilla/mux"

// API is a group of HTTP routes mounted on the shared router.
type API interface {
	Name() string
	Configure(router *mux.Router) error
}
