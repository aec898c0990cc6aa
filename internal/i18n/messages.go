package i18n

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":             "Invalid request parameters",
		"error.unauthorized":            "Please sign in first",
		"error.token_invalid":           "Sign-in expired, please sign in again",
		"error.forbidden":               "You do not have permission for this action",
		"error.not_found":               "Resource not found",
		"error.internal":                "Server error, please try again later",
		"error.rate_limited":            "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":  "Rate limiter unavailable, please try again later",
		"error.login_failed":            "Incorrect username or password",
		"error.account_disabled":        "Account disabled",
		"error.donation_not_found":      "Donation not found",
		"error.invalid_status":          "Unknown donation status",
		"error.invalid_transition":      "Cannot move donation from %s to %s",
		"error.transition_forbidden":    "Only operators can move a donation to this status",
		"error.otp_required":            "Pickup OTP must be verified before hand-off",
		"error.otp_expired":             "OTP expired, please request a new one",
		"error.otp_mismatch":            "Incorrect OTP, please check and re-enter",
		"error.otp_locked":              "Too many incorrect attempts, retry in %d seconds",
		"error.category_required":       "Category is required",
		"error.description_required":    "Description is required",
		"error.pickup_date_invalid":     "Pickup date must be a valid YYYY-MM-DD date",
		"error.district_invalid":        "Please choose a valid district",
		"error.estimated_value_invalid": "Estimated value must be a non-negative amount",
		"error.upload_failed":           "Upload failed",
		"error.file_too_large":          "Each image must be 5MB or smaller",
		"error.file_type_not_allowed":   "Only JPG, PNG, GIF or WEBP images are allowed",
		"error.too_many_images":         "Too many images for this donation",
		"error.user_id_invalid":         "Invalid donor identity",
		"error.user_id_type_invalid":    "Invalid donor identity type",
		"error.admin_id_invalid":        "Invalid operator identity",
		"error.admin_id_type_invalid":   "Invalid operator identity type",
		"error.auth_header_missing":     "Authorization header is missing",
		"error.auth_header_invalid":     "Authorization header must use the Bearer scheme",
		"error.login_too_many":          "Too many sign-in attempts, please retry in %d seconds",
		"error.donation_create_failed":  "Failed to create donation, please try again later",
		"error.donation_fetch_failed":   "Failed to load donation",
		"error.donation_update_failed":  "Failed to update donation",
		"error.otp_issue_failed":        "Failed to issue pickup OTP",
		"error.images_required":         "Please choose at least one image",

		"email.donation_submitted.subject": "Donation received: %s",
		"email.donation_submitted.body":    "Thank you for your donation.\n\nReceipt No: %s\nCategory: %s\nPickup date: %s\nLocation: %s\n\nWe will confirm your pickup shortly.",
		"email.donation_status.subject":    "Donation %s is now %s",
		"email.donation_status.body":       "Your donation status has been updated.\n\nReceipt No: %s\nStatus: %s\nProgress: %d%%",
		"email.donation_otp.subject":       "Pickup code for donation %s",
		"email.donation_otp.body":          "Your pickup verification code is: %s\n\nShare it with the courier at hand-off. It expires in %d minutes.",
	},
	LocaleZH: {
		"error.bad_request":             "请求参数错误",
		"error.unauthorized":            "请先登录",
		"error.token_invalid":           "登录已失效，请重新登录",
		"error.forbidden":               "无权执行该操作",
		"error.not_found":               "资源不存在",
		"error.internal":                "服务器错误，请稍后重试",
		"error.rate_limited":            "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":  "限流服务不可用，请稍后重试",
		"error.login_failed":            "用户名或密码错误",
		"error.account_disabled":        "账号已停用",
		"error.donation_not_found":      "捐赠单不存在",
		"error.invalid_status":          "未知的捐赠状态",
		"error.invalid_transition":      "捐赠单状态不可从 %s 变更为 %s",
		"error.transition_forbidden":    "仅运营人员可将捐赠单推进到该状态",
		"error.otp_required":            "交接前需先完成取件验证码验证",
		"error.otp_expired":             "验证码已过期，请重新获取",
		"error.otp_mismatch":            "验证码错误，请核对后重新输入",
		"error.otp_locked":              "错误次数过多，请 %d 秒后再试",
		"error.category_required":       "请填写物品品类",
		"error.description_required":    "请填写物品描述",
		"error.pickup_date_invalid":     "取件日期格式应为 YYYY-MM-DD",
		"error.district_invalid":        "请选择有效的区",
		"error.estimated_value_invalid": "估值必须为非负金额",
		"error.upload_failed":           "上传失败",
		"error.file_too_large":          "单张图片不能超过 5MB",
		"error.file_type_not_allowed":   "仅支持 JPG、PNG、GIF、WEBP 图片",
		"error.too_many_images":         "该捐赠单图片数量已达上限",
		"error.user_id_invalid":         "捐赠人身份无效",
		"error.user_id_type_invalid":    "捐赠人身份类型错误",
		"error.admin_id_invalid":        "运营人员身份无效",
		"error.admin_id_type_invalid":   "运营人员身份类型错误",
		"error.auth_header_missing":     "缺少 Authorization 请求头",
		"error.auth_header_invalid":     "Authorization 请求头需使用 Bearer 格式",
		"error.login_too_many":          "登录尝试过于频繁，请 %d 秒后再试",
		"error.donation_create_failed":  "创建捐赠单失败，请稍后重试",
		"error.donation_fetch_failed":   "获取捐赠单失败",
		"error.donation_update_failed":  "更新捐赠单失败",
		"error.otp_issue_failed":        "取件验证码签发失败",
		"error.images_required":         "请至少选择一张图片",

		"email.donation_submitted.subject": "已收到您的捐赠：%s",
		"email.donation_submitted.body":    "感谢您的捐赠。\n\n收据编号：%s\n品类：%s\n取件日期：%s\n地址：%s\n\n我们会尽快确认取件安排。",
		"email.donation_status.subject":    "捐赠 %s 状态更新：%s",
		"email.donation_status.body":       "您的捐赠状态已更新。\n\n收据编号：%s\n当前状态：%s\n进度：%d%%",
		"email.donation_otp.subject":       "捐赠 %s 的取件验证码",
		"email.donation_otp.body":          "您的取件验证码是：%s\n\n请在交接时告知取件员，%d 分钟内有效。",
	},
	LocaleTW: {
		"error.bad_request":          "請求參數錯誤",
		"error.unauthorized":         "請先登入",
		"error.forbidden":            "無權執行該操作",
		"error.not_found":            "資源不存在",
		"error.internal":             "伺服器錯誤，請稍後重試",
		"error.rate_limited":         "請求過於頻繁，請 %d 秒後再試",
		"error.donation_not_found":   "捐贈單不存在",
		"error.invalid_transition":   "捐贈單狀態不可從 %s 變更為 %s",
		"error.otp_required":         "交接前需先完成取件驗證碼驗證",
		"error.otp_expired":          "驗證碼已過期，請重新取得",
		"error.otp_mismatch":         "驗證碼錯誤，請核對後重新輸入",
		"error.otp_locked":           "錯誤次數過多，請 %d 秒後再試",
		"error.district_invalid":     "請選擇有效的區",
		"error.transition_forbidden": "僅營運人員可將捐贈單推進到該狀態",
		"error.login_too_many":       "登入嘗試過於頻繁，請 %d 秒後再試",
	},
}
