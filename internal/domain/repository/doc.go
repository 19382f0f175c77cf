// Package repository define las entidades y contratos de persistencia del
// authorization server.
//
// Las interfaces son independientes del almacenamiento. Las implementaciones
// viven en internal/store/{memory,redis,pg}.
//
//	┌─────────────────────────────────────────────────────┐
//	│   oauth2/{granter,authorize,revoke,introspect}      │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  ClientDirectory, TokenStore, AuthorizationCodeStore│
//	└─────────────────────────────────────────────────────┘
//	                        │
//	         ┌──────────────┼──────────────┐
//	         ▼              ▼              ▼
//	┌─────────────┐  ┌─────────────┐  ┌─────────────┐
//	│ store/memory│  │ store/redis │  │  store/pg   │
//	└─────────────┘  └─────────────┘  └─────────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Lookups sin resultado retornan ErrNotFound
//   - Las entidades retornadas son copias; mutarlas no afecta al store
package repository
