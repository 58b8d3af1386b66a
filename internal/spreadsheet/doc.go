// Package spreadsheet encodes tables as xlsx or csv files and reads them
// back. The first row holds the column labels. In xlsx files the canonical
// amount columns are stored as numbers; every other cell is text.
package spreadsheet
