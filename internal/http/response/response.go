package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope 接口统一外层结构，HTTP 状态恒为 200，业务结果看 status_code
type Envelope struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// NewPagination 按总数计算页数
func NewPagination(page, pageSize int, total int64) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return p
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{StatusCode: CodeOK, Msg: "success", Data: data})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, Envelope{StatusCode: CodeOK, Msg: "success", Data: data, Pagination: &pagination})
}

// Error 错误响应，data 中带上 request_id 便于排查
func Error(c *gin.Context, statusCode int, msg string) {
	ErrorWithData(c, statusCode, msg, nil)
}

// ErrorWithData 错误响应（带结构化数据）
func ErrorWithData(c *gin.Context, statusCode int, msg string, data gin.H) {
	if requestID := c.GetString("request_id"); requestID != "" {
		if data == nil {
			data = gin.H{}
		}
		if _, exists := data["request_id"]; !exists {
			data["request_id"] = requestID
		}
	}
	var payload interface{}
	if data != nil {
		payload = data
	}
	c.JSON(http.StatusOK, Envelope{StatusCode: statusCode, Msg: msg, Data: payload})
}

// Abort 写入错误响应并中断后续处理
func Abort(c *gin.Context, statusCode int, msg string) {
	Error(c, statusCode, msg)
	c.Abort()
}
