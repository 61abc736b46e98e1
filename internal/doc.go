// Package internal documents the storefront server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, rendering, and routing
// - domain: catalog, cart, coupons, shipping, orders and payments logic
// - storage: Postgres repositories and the S3 export archive
// - jobs: River workers for emails, tracking sync and cleanup
// - carrier, mercadopago, email: outbound integrations
// - mcp: the Model Context Protocol server
// - auth, audit, config, metrics, jsonld, telemetry: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
