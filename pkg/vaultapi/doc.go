// Package vaultapi holds the JSON wire types of the teamvault HTTP API and a
// small client for it.
//
// The server encodes these types directly; the client is used by the
// end-to-end tests and by anything scripting against a running service.
//
//	c := vaultapi.NewClient("http://localhost:8080")
//	s, err := c.Login(ctx, vaultapi.LoginRequest{Email: "a@example.com", Password: "..."})
//	if err != nil { ... }
//	entries, err := s.ListEntries(ctx, vaultapi.ScopeAll)
package vaultapi
