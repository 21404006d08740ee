// Package dataprocessing loads source tables for the feature pipeline.
//
// A Schema names the columns that must be coerced to a typed kind. Every
// other column is kept as text. Empty cells become missing values.
//
//	table, err := dataprocessing.LoadFile("input/data.csv", dataprocessing.EmployeeSchema())
//
// Delimited text (.csv, .txt) is read with encoding/csv. Workbooks (.xlsx,
// .xlsm) are read from their first sheet, or a named one, through excelize.
//
// Profile summarises a loaded table per column (count, missing, min, max,
// mean, quartiles) and backs the pipeline's input report.
package dataprocessing
