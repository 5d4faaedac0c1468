// Package domain defines the core business entities and their validation
// rules: accounts with their authentication state, and the tasks accounts
// own.
package domain
