package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"instrument-tracker/internal/models"
)

func TestReadCSV_Comma(t *testing.T) {
	input := "Name,Location,Calibration Period,Last Calibration Date,Calibration Required,Notes\n" +
		"Balance,Lab 2,90,2024-01-10,yes,Class II\n" +
		"\n" +
		"Ruler,Workshop,,,no,\n"

	result, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Empty(t, result.Errors)
	require.Len(t, result.Rows, 2)

	balance := result.Rows[0]
	assert.Equal(t, 2, balance.Line)
	assert.Equal(t, "Balance", balance.Instrument.Name)
	assert.Equal(t, 90, balance.Instrument.CalibrationPeriod)
	assert.True(t, balance.Instrument.CalibrationRequired)
	require.NotNil(t, balance.Instrument.LastCalibrationDate)
	assert.Equal(t, "2024-01-10", balance.Instrument.LastCalibrationDate.String())
	require.NotNil(t, balance.Instrument.Notes)
	assert.Equal(t, "Class II", *balance.Instrument.Notes)

	ruler := result.Rows[1]
	assert.Equal(t, 4, ruler.Line)
	assert.False(t, ruler.Instrument.CalibrationRequired)
	assert.Zero(t, ruler.Instrument.CalibrationPeriod)
	assert.Nil(t, ruler.Instrument.LastCalibrationDate)
	assert.Nil(t, ruler.Instrument.Notes)
}

func TestReadCSV_UTF16TabDelimited(t *testing.T) {
	text := "name\tlocation\tnotes\r\nLämpömittari\tLaboratorio 1\tÖljyhaude\r\n"
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "\xff\xfe"))

	result, err := ReadCSV(strings.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Lämpömittari", result.Rows[0].Instrument.Name)
	assert.Equal(t, "Laboratorio 1", result.Rows[0].Instrument.Location)
	assert.Equal(t, "Öljyhaude", *result.Rows[0].Instrument.Notes)
	assert.True(t, result.Rows[0].Instrument.CalibrationRequired)
}

func TestReadCSV_RowErrors(t *testing.T) {
	input := "name,location,period,last calibrated\n" +
		"Balance,,30,\n" +
		"Scale,Lab,thirty,\n" +
		"Caliper,Lab,30,10/01/2024\n" +
		"Pipette,Lab,30,2024-02-01\n"

	result, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Pipette", result.Rows[0].Instrument.Name)

	require.Len(t, result.Errors, 3)
	assert.Equal(t, 2, result.Errors[0].Line)
	assert.ErrorIs(t, result.Errors[0], models.ErrValidation)
	assert.Contains(t, result.Errors[1].Error(), "line 3: calibration_period")
	assert.Contains(t, result.Errors[2].Error(), "last_calibration_date")
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("name,period\nBalance,30\n"))
	assert.ErrorContains(t, err, `missing required column "location"`)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb,c\td\n")))
	assert.Equal(t, ',', detectDelimiter([]byte("a,b,c\n1\t2")))
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n")))
}

func TestReadYAML(t *testing.T) {
	input := `instruments:
  - name: Balance
    location: Lab 2
    calibration_period: 90
    last_calibration_date: 2024-01-10
  - name: Ruler
    location: Workshop
    calibration_required: false
    notes: Steel, 1 m
  - name: ""
    location: Nowhere
`
	result, err := ReadYAML(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)

	assert.Equal(t, 2, result.Rows[0].Line)
	assert.Equal(t, 90, result.Rows[0].Instrument.CalibrationPeriod)
	assert.Equal(t, "2024-01-10", result.Rows[0].Instrument.LastCalibrationDate.String())
	assert.False(t, result.Rows[1].Instrument.CalibrationRequired)
	assert.Equal(t, "Steel, 1 m", *result.Rows[1].Instrument.Notes)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 10, result.Errors[0].Line)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "instruments.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,location\nBalance,Lab\n"), 0644))
	result, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, result.Rows, 1)

	_, err = ReadFile(filepath.Join(dir, "instruments.json"))
	assert.Error(t, err)

	jsonPath := filepath.Join(dir, "list.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("[]"), 0644))
	_, err = ReadFile(jsonPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
