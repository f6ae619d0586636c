package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adwall/internal/constants"
	"adwall/internal/formschema"
	"adwall/internal/model"
	"adwall/pkg/logger"
)

func newFormFixture() (*fakeTypeRepo, *fakeFormRepo, FormConfigService) {
	types := newFakeTypeRepo(
		&model.AdType{ID: 1, TypeCode: "short_video", Status: 1},
		&model.AdType{ID: 9, TypeCode: "custom", Status: 1},
	)
	forms := newFakeFormRepo()
	return types, forms, NewFormConfigService(types, forms, nil, logger.NewNop())
}

func TestFormConfigGetFallbacks(t *testing.T) {
	_, forms, svc := newFormFixture()
	ctx := context.Background()

	// 类型不存在
	s, err := svc.Get(ctx, "nope", "")
	require.NoError(t, err)
	assert.Equal(t, formschema.EmptySchemaTitle, s.FormTitle)
	assert.Empty(t, s.Fields)

	// 没有保存配置时使用内置表单
	s, err = svc.Get(ctx, "short_video", "")
	require.NoError(t, err)
	assert.True(t, s.HasVideoField())

	// 未知类型编码没有内置表单
	s, err = svc.Get(ctx, "custom", "")
	require.NoError(t, err)
	assert.Equal(t, formschema.EmptySchemaTitle, s.FormTitle)

	// 保存的配置无法解析
	forms.configs[formKey(9, formschema.DefaultConfigKey)] = &model.FormConfig{TypeID: 9, ConfigKey: formschema.DefaultConfigKey, Schema: "{bad"}
	s, err = svc.Get(ctx, "custom", formschema.DefaultConfigKey)
	require.NoError(t, err)
	assert.Equal(t, formschema.BrokenSchemaTitle, s.FormTitle)
	assert.Empty(t, s.Fields)
}

func TestFormConfigGetRequiresTypeCode(t *testing.T) {
	_, _, svc := newFormFixture()
	_, err := svc.Get(context.Background(), "", "")
	require.ErrorIs(t, err, constants.ErrBadRequest)
}

func TestFormConfigGetRepositoryError(t *testing.T) {
	types, forms, svc := newFormFixture()
	forms.err = errBoom
	_, err := svc.Get(context.Background(), "custom", "")
	assert.ErrorIs(t, err, errBoom)

	forms.err = nil
	types.err = errBoom
	_, err = svc.Get(context.Background(), "custom", "")
	assert.ErrorIs(t, err, errBoom)
}

func TestFormConfigSaveAndLoad(t *testing.T) {
	_, forms, svc := newFormFixture()
	ctx := context.Background()

	in := formschema.NewSchema("自定义表单", []formschema.FieldSpec{
		{Name: "slogan", Type: formschema.TypeInput, Label: "口号", Required: true},
	})
	saved, err := svc.Save(ctx, "custom", "", in)
	require.NoError(t, err)

	stored := forms.configs[formKey(9, formschema.DefaultConfigKey)]
	require.NotNil(t, stored)
	var roundTrip formschema.Schema
	require.NoError(t, json.Unmarshal([]byte(stored.Schema), &roundTrip))
	assert.Equal(t, saved.Specs(), roundTrip.Specs())

	got, err := svc.ForTypeID(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "自定义表单", got.FormTitle)
	f, ok := got.Field("slogan")
	require.True(t, ok)
	assert.True(t, f.Required)
}

func TestFormConfigSaveErrors(t *testing.T) {
	_, _, svc := newFormFixture()
	ctx := context.Background()

	_, err := svc.Save(ctx, "", "", formschema.Schema{})
	assert.ErrorIs(t, err, constants.ErrBadRequest)

	_, err = svc.Save(ctx, "nope", "", formschema.Schema{})
	assert.ErrorIs(t, err, constants.ErrNotFound)
}

func TestFormConfigForTypeIDUnknownType(t *testing.T) {
	_, _, svc := newFormFixture()
	s, err := svc.ForTypeID(context.Background(), 404)
	require.NoError(t, err)
	assert.Empty(t, s.Specs())
}
