// Package assembler downloads an episode's parts and merges them into a
// single temp artifact ready for duplicate matching.
package assembler
