// Package lib groups helpers that sit outside the service layers: background
// jobs, the spam lookup client and small utilities.
package lib
