package pdfparser

import (
	"fmt"
	"os"
	"os/exec"
)

// PDFExtractor defines the interface for extracting text from PDF files.
// This interface allows for dependency injection and makes the PDF parser testable
// by providing different implementations for production and testing.
type PDFExtractor interface {
	// ExtractText extracts text content from a PDF file at the given path.
	ExtractText(pdfPath string) (string, error)
}

// RealPDFExtractor implements PDFExtractor using the pdftotext command.
type RealPDFExtractor struct {
	Command string
}

// NewRealPDFExtractor creates an extractor running command, "pdftotext" when empty.
func NewRealPDFExtractor(command string) *RealPDFExtractor {
	if command == "" {
		command = "pdftotext"
	}
	return &RealPDFExtractor{Command: command}
}

// ExtractText runs the command in layout mode so columns stay separated by
// runs of spaces.
func (e *RealPDFExtractor) ExtractText(pdfPath string) (string, error) {
	out, err := os.CreateTemp("", "statement-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create text output file: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer os.Remove(outPath)

	cmd := exec.Command(e.Command, "-layout", pdfPath, outPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("error running %s: %w: %s", e.Command, err, output)
	}

	text, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("error reading extracted text: %w", err)
	}
	return string(text), nil
}

// MockPDFExtractor implements PDFExtractor for testing purposes.
// It returns predefined mock data instead of actually extracting from PDF files.
type MockPDFExtractor struct {
	MockText string
	MockErr  error
	Calls    int
}

// NewMockPDFExtractor creates a new MockPDFExtractor with the given mock data.
func NewMockPDFExtractor(mockText string, mockErr error) *MockPDFExtractor {
	return &MockPDFExtractor{
		MockText: mockText,
		MockErr:  mockErr,
	}
}

// ExtractText returns the predefined mock text or error.
func (e *MockPDFExtractor) ExtractText(pdfPath string) (string, error) {
	e.Calls++
	if e.MockErr != nil {
		return "", e.MockErr
	}
	return e.MockText, nil
}
