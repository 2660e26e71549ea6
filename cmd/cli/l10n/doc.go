// Package l10n provides the l10n-migrate command that applies Fluent
// migration recipes across locale checkouts.
package l10n
