// Package features implements the column transforms of the employee
// feature pipeline.
//
// Every stage is a pure function from a source table to an augmented
// copy of it. Stages never read each other's output, so a caller may run
// them in any order or concurrently against the same table.
//
// # Stages
//
//   - Derive: salary_per_age, annual_bonus, is_senior, salary_level, score_rank
//   - Encode: dept_<value> indicators replacing department, category_encoded
//   - Bin: age_group, salary_range, score_grade over right-closed intervals
//   - Decompose: calendar parts of join_date plus years_in_company
//   - FlagAnomalies: IQR and z-score outlier flags and their union
//
// # Failures
//
// A required column that is absent or of the wrong kind, an unparseable
// join_date and a statistic over an empty column are returned as
// *errors.AppError values carrying the stage id and the column. Unmapped
// categories and out-of-range bin values are not errors; they show up as
// missing values in the derived column.
package features
