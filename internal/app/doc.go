// Package app composes the order service: domain services over their stores,
// sharing one token service.
//
//	internal/app/
//	├── application.go   # Application struct and wiring
//	├── auth/            # Access token issue and verification
//	├── domain/          # Product, client and order models
//	├── storage/         # Store interfaces, memory/ and sqlstore/ implementations
//	├── services/        # products, clients, orders
//	├── httpapi/         # REST handlers and routing
//	├── metrics/         # Prometheus collectors
//	└── runtime/         # Process wiring and HTTP server lifecycle
//
// The dependency flow is cmd/fastfood → runtime → httpapi → app → services →
// storage. Adding an entity means a model under domain/, a store interface
// plus memory and SQL implementations, a service, and handlers.
package app
