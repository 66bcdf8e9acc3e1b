// Package migrations embeds the goose SQL migrations for the demo/test
// schema used by the example app and the integration fixtures.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
