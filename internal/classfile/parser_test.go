package classfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classgraph/classgraph/internal/classfile"
	"github.com/classgraph/classgraph/internal/intern"
	"github.com/classgraph/classgraph/internal/testutil"
)

func newParser(t *testing.T, includeNonPublic bool) *classfile.Parser {
	t.Helper()
	return classfile.NewParser(classfile.ParserOptions{IncludeNonPublicFields: includeNonPublic}, intern.New())
}

func TestParser_BasicClass(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithSuperclass("com.example.Base").
		WithInterface("com.example.Greeter").
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	assert.Empty(t, res.Log)
	assert.Equal(t, "com.example.Widget", res.Record.ClassName)
	assert.Equal(t, "com.example.Base", res.Record.SuperclassName)
	assert.Equal(t, []string{"com.example.Greeter"}, res.Record.ImplementedInterfaces)
	assert.False(t, res.Record.IsInterface)
	assert.False(t, res.Record.IsAnnotation)
}

func TestParser_SuperclassJavaLangObjectOmitted(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Root").
		WithSuperclass("java.lang.Object").
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Root.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.SuperclassName)
}

func TestParser_InterfaceAndAnnotationFlags(t *testing.T) {
	ifaceData := testutil.NewClassfileBuilder("com.example.Greeter").AsInterface().Bytes()
	p := newParser(t, false)
	res := p.Parse("com/example/Greeter.class", bytes.NewReader(ifaceData), nil, nil)
	require.NotNil(t, res.Record)
	assert.True(t, res.Record.IsInterface)
	assert.False(t, res.Record.IsAnnotation)

	annoData := testutil.NewClassfileBuilder("com.example.Tag").AsAnnotation().Bytes()
	p2 := newParser(t, false)
	res2 := p2.Parse("com/example/Tag.class", bytes.NewReader(annoData), nil, nil)
	require.NotNil(t, res2.Record)
	assert.True(t, res2.Record.IsAnnotation)
}

func TestParser_ClassLevelAnnotation(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithAnnotation("com.example.Tag").
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	assert.Equal(t, []string{"com.example.Tag"}, res.Record.Annotations)
}

func TestParser_PublicFieldType(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("helper", "Lcom/example/Helper;", testutil.FieldOptions{Public: true}).
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	_, ok := res.Record.FieldTypes["com.example.Helper"]
	assert.True(t, ok)
}

func TestParser_NonPublicFieldSkippedByDefault(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("helper", "Lcom/example/Helper;", testutil.FieldOptions{Public: false}).
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.FieldTypes)
}

func TestParser_NonPublicFieldIncludedWhenRequested(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("helper", "Lcom/example/Helper;", testutil.FieldOptions{Public: false}).
		Bytes()

	p := newParser(t, true)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	_, ok := res.Record.FieldTypes["com.example.Helper"]
	assert.True(t, ok)
}

func TestParser_StaticFinalConstantValue(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("MAX", "I", testutil.FieldOptions{
			Public: true, Static: true, Final: true,
			ConstantKind: "int", IntValue: 42,
		}).
		Bytes()

	p := newParser(t, false)
	fieldsWanted := classfile.FieldsWanted{"com.example.Widget": {"MAX": {}}}
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, fieldsWanted)

	require.NotNil(t, res.Record)
	val, ok := res.Record.StaticFinalFieldValues["MAX"]
	require.True(t, ok)
	assert.Equal(t, classfile.KindInt32, val.Kind)
	assert.Equal(t, int32(42), val.Int32)
}

func TestParser_StaticFinalConstantNotCapturedWithoutWantedField(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("MAX", "I", testutil.FieldOptions{
			Public: true, Static: true, Final: true,
			ConstantKind: "int", IntValue: 42,
		}).
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.StaticFinalFieldValues)
}

func TestParser_StringConstantValue(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("NAME", "Ljava/lang/String;", testutil.FieldOptions{
			Public: true, Static: true, Final: true,
			ConstantKind: "string", StringValue: "widget",
		}).
		Bytes()

	p := newParser(t, false)
	fieldsWanted := classfile.FieldsWanted{"com.example.Widget": {"NAME": {}}}
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, fieldsWanted)

	require.NotNil(t, res.Record)
	val, ok := res.Record.StaticFinalFieldValues["NAME"]
	require.True(t, ok)
	assert.Equal(t, classfile.KindString, val.Kind)
	assert.Equal(t, "widget", val.Str)
}

func TestParser_SignatureAttributeContributesFieldType(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithField("items", "Ljava/util/List;", testutil.FieldOptions{
			Public:    true,
			Signature: "Ljava/util/List<Lcom/example/Item;>;",
		}).
		Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), nil, nil)

	require.NotNil(t, res.Record)
	_, hasRaw := res.Record.FieldTypes["java.util.List"]
	_, hasGeneric := res.Record.FieldTypes["com.example.Item"]
	assert.True(t, hasRaw)
	assert.True(t, hasGeneric)
}

func TestParser_FilterExcludesSuperclassInterfaceAndAnnotation(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").
		WithSuperclass("com.blacklisted.Base").
		WithInterface("com.blacklisted.Marker").
		WithAnnotation("com.blacklisted.Tag").
		Bytes()

	p := newParser(t, false)
	filter := classfile.Filter(func(name string) bool {
		return name != "com.blacklisted.Base" && name != "com.blacklisted.Marker" && name != "com.blacklisted.Tag"
	})
	res := p.Parse("com/example/Widget.class", bytes.NewReader(data), filter, nil)

	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.SuperclassName)
	assert.Empty(t, res.Record.ImplementedInterfaces)
	assert.Empty(t, res.Record.Annotations)
}

func TestParser_PathNameMismatchSkipped(t *testing.T) {
	data := testutil.NewClassfileBuilder("com.example.Widget").Bytes()

	p := newParser(t, false)
	res := p.Parse("com/example/WrongName.class", bytes.NewReader(data), nil, nil)

	assert.Nil(t, res.Record)
	require.NotEmpty(t, res.Log)
}

func TestParser_BadMagicDiscarded(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0, 0, 0, 0}

	p := newParser(t, false)
	res := p.Parse("com/example/Bad.class", bytes.NewReader(data), nil, nil)

	assert.Nil(t, res.Record)
	require.NotEmpty(t, res.Log)
}

func TestParser_JavaLangObjectItselfSkipped(t *testing.T) {
	data := testutil.NewClassfileBuilder("java.lang.Object").Bytes()

	p := newParser(t, false)
	res := p.Parse("java/lang/Object.class", bytes.NewReader(data), nil, nil)

	assert.Nil(t, res.Record)
}
