package postgres

import (
	"encoding/json"
	"fmt"
	"strings"
)

// placeholder returns the n-th placeholder for PostgreSQL ($1, $2, ...).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// placeholders returns n placeholders for PostgreSQL.
func placeholders(n int) string {
	list := []string{}
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// marshalStringList encodes a string list column. nil encodes as [].
func marshalStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalStringList(data string) []string {
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return []string{}
	}
	if list == nil {
		list = []string{}
	}
	return list
}
