// Package command provides the refstate-cli commands.
//
// Commands fall into three groups:
//
//   - tokens: create, resolve
//   - server references: get, delete
//   - saved page state: link, load, clear
//
// plus gen-id and version. The saved state lives in a pagestate.FileSlot,
// so "create --save" followed by "resolve" works across invocations.
package command
