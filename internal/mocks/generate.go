// Package mocks holds gomock doubles for the vendor and archive ports.
//
// Regenerate after interface changes with:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=vendor_mock.go github.com/scanvault/api/internal/client Vendor
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=archive_store_mock.go github.com/scanvault/api/internal/client ArchiveStore
