// Package service holds the business logic between the HTTP handlers and
// the repositories.
package service
