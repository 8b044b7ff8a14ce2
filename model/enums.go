package model

import (
	"fmt"
	"strings"
)

// LogSeverity is the severity of a log artifact
type LogSeverity uint8

const (
	LogSeverityInfo LogSeverity = iota + 1
	LogSeverityDebug
	LogSeverityWarning
	LogSeverityError
	LogSeverityFatal
)

var logSeverityNames = map[LogSeverity]string{
	LogSeverityInfo:    "INFO",
	LogSeverityDebug:   "DEBUG",
	LogSeverityWarning: "WARNING",
	LogSeverityError:   "ERROR",
	LogSeverityFatal:   "FATAL",
}

// LogSeverities lists all members in declaration order.
func LogSeverities() []LogSeverity {
	return []LogSeverity{LogSeverityInfo, LogSeverityDebug, LogSeverityWarning, LogSeverityError, LogSeverityFatal}
}

func (s LogSeverity) String() string { return enumName("LogSeverity", logSeverityNames, s) }

func (s LogSeverity) Valid() bool {
	_, ok := logSeverityNames[s]
	return ok
}

// ParseLogSeverity parses a schema token such as "INFO".
func ParseLogSeverity(token string) (LogSeverity, error) {
	return parseEnum("log severity", logSeverityNames, token)
}

// DiagnosisType is the outcome class of a diagnosis
type DiagnosisType uint8

const (
	DiagnosisPass DiagnosisType = iota + 1
	DiagnosisFail
	DiagnosisUnknown
)

var diagnosisTypeNames = map[DiagnosisType]string{
	DiagnosisPass:    "PASS",
	DiagnosisFail:    "FAIL",
	DiagnosisUnknown: "UNKNOWN",
}

// DiagnosisTypes lists all members in declaration order.
func DiagnosisTypes() []DiagnosisType {
	return []DiagnosisType{DiagnosisPass, DiagnosisFail, DiagnosisUnknown}
}

func (t DiagnosisType) String() string { return enumName("DiagnosisType", diagnosisTypeNames, t) }

func (t DiagnosisType) Valid() bool {
	_, ok := diagnosisTypeNames[t]
	return ok
}

// ParseDiagnosisType parses a schema token such as "PASS".
func ParseDiagnosisType(token string) (DiagnosisType, error) {
	return parseEnum("diagnosis type", diagnosisTypeNames, token)
}

// TestStatus is the terminal status of a run or step
type TestStatus uint8

const (
	TestStatusComplete TestStatus = iota + 1
	TestStatusError
	TestStatusSkip
)

var testStatusNames = map[TestStatus]string{
	TestStatusComplete: "COMPLETE",
	TestStatusError:    "ERROR",
	TestStatusSkip:     "SKIP",
}

// TestStatuses lists all members in declaration order.
func TestStatuses() []TestStatus {
	return []TestStatus{TestStatusComplete, TestStatusError, TestStatusSkip}
}

func (s TestStatus) String() string { return enumName("TestStatus", testStatusNames, s) }

func (s TestStatus) Valid() bool {
	_, ok := testStatusNames[s]
	return ok
}

// ParseTestStatus parses a schema token such as "COMPLETE".
func ParseTestStatus(token string) (TestStatus, error) {
	return parseEnum("test status", testStatusNames, token)
}

// TestResult is the overall verdict of a run
type TestResult uint8

const (
	TestResultPass TestResult = iota + 1
	TestResultFail
	TestResultNotApplicable
)

var testResultNames = map[TestResult]string{
	TestResultPass:          "PASS",
	TestResultFail:          "FAIL",
	TestResultNotApplicable: "NOT_APPLICABLE",
}

// TestResults lists all members in declaration order.
func TestResults() []TestResult {
	return []TestResult{TestResultPass, TestResultFail, TestResultNotApplicable}
}

func (r TestResult) String() string { return enumName("TestResult", testResultNames, r) }

func (r TestResult) Valid() bool {
	_, ok := testResultNames[r]
	return ok
}

// ParseTestResult parses a schema token such as "NOT_APPLICABLE".
func ParseTestResult(token string) (TestResult, error) {
	return parseEnum("test result", testResultNames, token)
}

func enumName[E ~uint8](typeName string, names map[E]string, v E) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", typeName, uint8(v))
}

func parseEnum[E ~uint8](what string, names map[E]string, token string) (E, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	for v, name := range names {
		if name == token {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", what, token)
}
