package graphql

import (
	"encoding/json"
	"strconv"

	gql "github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/shopspring/decimal"
)

// JSONString: строка с произвольным JSON-значением. В переменных запроса допускается и сам объект.
// Отклоняется только строка, которая не разбирается как JSON; форму значения проверяет резолвер.
var JSONString = gql.NewScalar(gql.ScalarConfig{
	Name:        "JSONString",
	Description: "Allows use of a JSON String for input / output from the GraphQL schema.",
	Serialize: func(value interface{}) interface{} {
		if s, ok := value.(string); ok {
			return s
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil
		}
		return string(raw)
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return decodeJSON(v)
		case map[string]interface{}:
			return v
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			return decodeJSON(v.Value)
		case *ast.ObjectValue:
			return literalValue(v)
		default:
			return nil
		}
	},
})

// Decimal: денежное значение, сериализуется строкой с двумя знаками после точки.
var Decimal = gql.NewScalar(gql.ScalarConfig{
	Name:        "Decimal",
	Description: "Fixed-point decimal serialized as a string with two fraction digits.",
	Serialize: func(value interface{}) interface{} {
		switch v := value.(type) {
		case decimal.Decimal:
			return v.StringFixed(2)
		case *decimal.Decimal:
			if v == nil {
				return nil
			}
			return v.StringFixed(2)
		case string:
			return v
		default:
			return nil
		}
	},
	ParseValue: func(value interface{}) interface{} {
		switch v := value.(type) {
		case string:
			return parseDecimal(v)
		case float64:
			return decimal.NewFromFloat(v)
		case int:
			return decimal.NewFromInt(int64(v))
		default:
			return nil
		}
	},
	ParseLiteral: func(valueAST ast.Value) interface{} {
		switch v := valueAST.(type) {
		case *ast.StringValue:
			return parseDecimal(v.Value)
		case *ast.IntValue:
			return parseDecimal(v.Value)
		case *ast.FloatValue:
			return parseDecimal(v.Value)
		default:
			return nil
		}
	},
})

func parseDecimal(s string) interface{} {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return d
}

// jsonNull заменяет JSON null: nil из ParseValue graphql-go считает невалидным аргументом.
type jsonNull struct{}

// decodeJSON возвращает nil только для строки, которая не является JSON.
func decodeJSON(s string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	if v == nil {
		return jsonNull{}
	}
	return v
}

func literalValue(valueAST ast.Value) interface{} {
	switch v := valueAST.(type) {
	case *ast.StringValue:
		return v.Value
	case *ast.BooleanValue:
		return v.Value
	case *ast.EnumValue:
		return v.Value
	case *ast.IntValue:
		if n, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return n
		}
		return v.Value
	case *ast.FloatValue:
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f
		}
		return v.Value
	case *ast.ListValue:
		items := make([]interface{}, 0, len(v.Values))
		for _, item := range v.Values {
			items = append(items, literalValue(item))
		}
		return items
	case *ast.ObjectValue:
		obj := make(map[string]interface{}, len(v.Fields))
		for _, field := range v.Fields {
			obj[field.Name.Value] = literalValue(field.Value)
		}
		return obj
	default:
		return nil
	}
}
