package constants

import "errors"

// 通用错误消息
const (
	// 认证相关错误
	ErrUnauthorized      = "未授权，请先登录"
	ErrInvalidToken      = "无效的Token"
	ErrPasswordIncorrect = "密码错误"
	ErrAdminDisabled     = "未配置管理员密码"

	// 参数相关错误
	ErrInvalidParams    = "参数错误"
	ErrInvalidRequest   = "无效请求格式"
	ErrBaseFieldMissing = "publisher、title、content、price、landing_url 为必填"
	ErrTypeIDRequired   = "type_id 必填"
	ErrTypeCodeRequired = "type_code 必填"
	ErrNoUpdateFields   = "无更新字段"
	ErrInvalidPrice     = "出价必须为不小于 0 的数字"
	ErrFormInvalid      = "表单校验失败"
	ErrVideoMissing     = "视频文件未上传，请使用字段名 video"

	// 业务错误
	ErrAdNotFound     = "广告不存在"
	ErrAdTypeNotFound = "广告类型不存在"
	ErrAdTypeExists   = "广告类型编码已存在"
	ErrVideoNotFound  = "视频不存在"

	// 系统错误
	ErrInternalServer = "服务器内部错误"
	ErrListAds        = "获取广告列表失败"
	ErrCreateAd       = "创建广告失败"
	ErrUpdateAd       = "更新失败"
	ErrDeleteAd       = "删除失败"
	ErrIncrementHeat  = "热度增加失败"
	ErrListAdTypes    = "查询广告类型失败"
	ErrGetFormConfig  = "查询配置失败"
	ErrSaveFormConfig = "保存配置失败"
	ErrSaveVideo      = "数据库保存失败"
)

// 成功消息
const (
	SuccessLogin  = "登录成功"
	SuccessCreate = "创建成功"
	SuccessUpdate = "更新成功"
	SuccessDelete = "删除成功"
	SuccessGet    = "success"
	SuccessHeat   = "热度已增加"
	SuccessCopy   = "复制成功"
)

// 服务层返回的哨兵错误，处理器据此选择响应码
var (
	ErrNotFound       = errors.New("记录不存在")
	ErrConflict       = errors.New("记录已存在")
	ErrBadRequest     = errors.New("请求参数错误")
	ErrAuthFailed     = errors.New("认证失败")
	ErrAuthNotEnabled = errors.New("管理员认证未启用")
)
