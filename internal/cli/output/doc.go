// Package output formats refstate-cli results as table, JSON or YAML.
//
// Results that know their tabular shape implement Tabular; other structs
// render as FIELD/VALUE rows.
package output
