// Package utils provides small helpers shared by CLI commands.
package utils
