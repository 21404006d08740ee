package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// EmployeesCSV is a three row source in the employee schema. Row one is
// the IT/45/95000 reference employee.
const EmployeesCSV = "age,salary,score,department,category,join_date\n" +
	"45,95000,40,IT,A,2019-03-15\n" +
	"28,48000,75,HR,B,2021-06-20\n" +
	"35,67000,88,IT,C,2022-12-01\n"

// ReferenceDate pins the time stage in fixtures that use EmployeesCSV
const ReferenceDate = "2024-03-15"

// WriteFile writes content to name under a fresh temp dir and returns the path
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
