package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scanner maps rows onto structs by matching column names to field names
// (snake_case columns to CamelCase fields, or an explicit `db` tag).
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

func (s *Scanner) ScanRowToStruct(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dest must be a pointer to struct")
	}

	destElem := destValue.Elem()
	destType := destElem.Type()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	if !rows.Next() {
		return sql.ErrNoRows
	}

	scanArgs := make([]interface{}, len(columns))
	for i := range scanArgs {
		scanArgs[i] = new(interface{})
	}

	if err := rows.Scan(scanArgs...); err != nil {
		return err
	}

	for i, colName := range columns {
		val := *(scanArgs[i].(*interface{}))

		field := s.findStructField(destType, colName)

		if field.Name == "" || field.Type == nil {
			continue
		}

		if err := s.setFieldValue(destElem.FieldByIndex(field.Index), val); err != nil {
			slog.Warn("Failed to set field", "field", field.Name, "error", err)
		}
	}

	return nil
}

func (s *Scanner) ScanRowsToSlice(rows *sql.Rows, dest interface{}) error {
	destValue := reflect.ValueOf(dest)

	if destValue.Kind() != reflect.Ptr || destValue.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("dest must be a pointer to slice")
	}

	sliceValue := destValue.Elem()
	elemType := sliceValue.Type().Elem()

	if elemType.Kind() != reflect.Struct {
		return fmt.Errorf("slice elements must be structs")
	}

	for rows.Next() {
		elemValue := reflect.New(elemType)

		if err := s.scanCurrentRow(rows, elemValue.Elem()); err != nil {
			return err
		}

		sliceValue.Set(reflect.Append(sliceValue, elemValue.Elem()))
	}

	return rows.Err()
}

// scanCurrentRow scans the row the cursor already points at, unlike
// ScanRowToStruct which advances the cursor first.
func (s *Scanner) scanCurrentRow(rows *sql.Rows, destElem reflect.Value) error {
	destType := destElem.Type()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	scanArgs := make([]interface{}, len(columns))
	for i := range scanArgs {
		scanArgs[i] = new(interface{})
	}

	if err := rows.Scan(scanArgs...); err != nil {
		return err
	}

	for i, colName := range columns {
		val := *(scanArgs[i].(*interface{}))

		field := s.findStructField(destType, colName)

		if field.Name == "" || field.Type == nil {
			continue
		}

		if err := s.setFieldValue(destElem.FieldByIndex(field.Index), val); err != nil {
			slog.Warn("Failed to set field", "field", field.Name, "error", err)
		}
	}

	return nil
}

func (s *Scanner) findStructField(structType reflect.Type, colName string) reflect.StructField {
	colNameLower := strings.ToLower(colName)

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if tag := field.Tag.Get("db"); tag != "" && strings.ToLower(tag) == colNameLower {
			return field
		}
	}

	camelCaseName := snakeToCamel(colName)
	if field, found := structType.FieldByName(camelCaseName); found {
		return field
	}

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if strings.ToLower(field.Name) == strings.ReplaceAll(colNameLower, "_", "") {
			return field
		}
	}

	return reflect.StructField{}
}

func snakeToCamel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "")
}

func (s *Scanner) setFieldValue(field reflect.Value, val interface{}) error {
	if !field.CanSet() {
		return fmt.Errorf("field cannot be set")
	}

	if val == nil {
		return nil
	}

	fieldType := field.Type()

	valValue := reflect.ValueOf(val)
	if valValue.Type().AssignableTo(fieldType) {
		field.Set(valValue)
		return nil
	}

	// Pointer fields (nullable columns) get a freshly allocated element.
	if fieldType.Kind() == reflect.Ptr {
		elem := reflect.New(fieldType.Elem())

		if err := s.setFieldValue(elem.Elem(), val); err != nil {
			return err
		}

		field.Set(elem)
		return nil
	}

	switch fieldType.Kind() {
	case reflect.String:
		if str, ok := val.(string); ok {
			field.SetString(str)
		}
	case reflect.Int, reflect.Int64:
		switch v := val.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		}
	case reflect.Bool:
		switch v := val.(type) {
		case bool:
			field.SetBool(v)
		case int64:
			field.SetBool(v != 0)
		}
	case reflect.Float64, reflect.Float32:
		if f, ok := val.(float64); ok {
			field.SetFloat(f)
		}
	}

	switch fieldType.String() {
	case "uuid.UUID":
		if str, ok := val.(string); ok {
			if parsedUUID, err := uuid.Parse(str); err == nil {
				field.Set(reflect.ValueOf(parsedUUID))
			} else {
				slog.Warn("Failed to parse UUID", "value", str, "error", err)
			}
		}
	case "time.Time":
		if str, ok := val.(string); ok {
			if parsedTime, err := time.Parse(time.RFC3339, str); err == nil {
				field.Set(reflect.ValueOf(parsedTime))
			} else if parsedTime, err := time.Parse("2006-01-02 15:04:05", str); err == nil {
				field.Set(reflect.ValueOf(parsedTime))
			} else {
				slog.Warn("Failed to parse time", "value", str, "error", err)
			}
		}
	}

	return nil
}
