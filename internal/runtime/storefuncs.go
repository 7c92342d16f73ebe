package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/jbind/internal/store"
)

// db_query(sql, ...args) → [{column: value}]
//
// Read-only access to an exported model. Arguments bind to `?` placeholders.
func makeDBQueryFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("db_query", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 {
			return object.Errorf("db_query: expected at least 1 argument, got 0")
		}
		q, err := toString(args[0])
		if err != nil {
			return object.Errorf("db_query: sql: %v", err)
		}
		params := make([]any, 0, len(args)-1)
		for i, a := range args[1:] {
			v, err := toGoValue(a)
			if err != nil {
				return object.Errorf("db_query: argument %d: %v", i+1, err)
			}
			params = append(params, v)
		}

		rows, err := s.QueryRows(ctx, q, params...)
		if err != nil {
			return object.Errorf("db_query: %v", err)
		}
		out := make([]object.Object, 0, len(rows))
		for _, row := range rows {
			m := make(map[string]object.Object, len(row))
			for col, v := range row {
				m[col] = fromGoValue(v)
			}
			out = append(out, object.NewMap(m))
		}
		return object.NewList(out)
	})
}

func toGoValue(obj object.Object) (any, error) {
	switch v := obj.(type) {
	case *object.String:
		return v.Value(), nil
	case *object.Int:
		return v.Value(), nil
	case *object.Float:
		return v.Value(), nil
	case *object.Bool:
		return v.Value(), nil
	}
	if obj == object.Nil {
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported type %s", obj.Type())
}

func fromGoValue(v any) object.Object {
	switch v := v.(type) {
	case nil:
		return object.Nil
	case int64:
		return object.NewInt(v)
	case float64:
		return object.NewFloat(v)
	case bool:
		return object.NewBool(v)
	case string:
		return object.NewString(v)
	case []byte:
		return object.NewString(string(v))
	}
	return object.NewString(fmt.Sprint(v))
}
