package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestObjectUnmarshalYAML(t *testing.T) {
	src := `
amount: 1.0
price: 0.5
qty: 100
big: 18446744073709551616
hex: 0x1F
created: 2024-01-01
ratio: .inf
note: "100"
held: true
memo: ~
legs:
  - {side: buy, size: 2.50}
`
	var obj Object
	require.NoError(t, yaml.Unmarshal([]byte(src), &obj))

	assert.Equal(t, Object{
		"amount":  Number("1.0"),
		"price":   Number("0.5"),
		"qty":     Int(100),
		"big":     Number("18446744073709551616"),
		"hex":     Int(31),
		"created": String("2024-01-01"),
		"ratio":   String(".inf"),
		"note":    String("100"),
		"held":    Bool(true),
		"memo":    Null{},
		"legs":    Array{Object{"side": String("buy"), "size": Number("2.50")}},
	}, obj)

	data, err := MarshalCanonical(obj["legs"])
	require.NoError(t, err)
	assert.Equal(t, `[{"side":"buy","size":2.50}]`, string(data))
}

func TestObjectUnmarshalYAMLMerge(t *testing.T) {
	src := `
base: &base {asset: usd, amount: 1}
rec:
  <<: *base
  amount: 2
`
	var doc struct {
		Rec Object `yaml:"rec"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	assert.Equal(t, Object{"asset": String("usd"), "amount": Int(2)}, doc.Rec)
}

func TestObjectUnmarshalYAMLRejectsSequence(t *testing.T) {
	var obj Object
	err := yaml.Unmarshal([]byte("[1, 2]"), &obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a mapping")
}
