package sink

import (
	"fmt"

	"github.com/loadbridge/loadbridge/pkg/apperrors"
	"github.com/loadbridge/loadbridge/pkg/conform"
	"github.com/loadbridge/loadbridge/pkg/sqltype"
	"github.com/loadbridge/loadbridge/pkg/stream"
)

// BuildTableSchema conforms a batch's schema into the desired table shape:
// property names become conformed column names (in schema order) and each
// fragment is mapped to its type descriptor. Two distinct source names
// conforming to the same identifier is a hard error; silently letting one
// column overwrite the other would corrupt data.
func BuildTableSchema(schema stream.Schema, keyProperties []string, preferFloat bool) (*sqltype.TableSchema, error) {
	sources := make(map[string]string, len(schema.Properties))
	columns := make([]sqltype.Column, 0, len(schema.Properties))

	for _, prop := range schema.Properties {
		name := conform.Name(prop.Name)
		if prev, ok := sources[name]; ok {
			return nil, fmt.Errorf("%w: %q and %q both conform to %q",
				apperrors.ErrColumnCollision, prev, prop.Name, name)
		}
		sources[name] = prop.Name
		columns = append(columns, sqltype.Column{
			Name: name,
			Type: sqltype.Map(prop.Property, preferFloat),
		})
	}

	desired := &sqltype.TableSchema{
		Columns:     columns,
		PrimaryKeys: conform.Names(keyProperties),
	}

	for _, key := range desired.PrimaryKeys {
		if _, ok := desired.Column(key); !ok {
			return nil, fmt.Errorf("primary key column %q is not in the stream schema", key)
		}
	}

	return desired, nil
}
