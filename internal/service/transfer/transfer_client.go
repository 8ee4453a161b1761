// Package transfer 提供与中心后端的远程传输协议实现
// 包含登录换取会话凭证、按分块上传记录与附件、拉取参照数据三类操作
// 每个分块对应一次multipart请求，后端对整个分块全收或全拒
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/weiwangfds/fieldtax/config"
	"github.com/weiwangfds/fieldtax/internal/database"
	"github.com/weiwangfds/fieldtax/internal/errors"
	"github.com/weiwangfds/fieldtax/internal/logger"
)

// ReferenceRow 参照表行
// ID由后端分配，本地全量替换时必须原样保留
type ReferenceRow struct {
	ID    uint   `json:"id"`
	Label string `json:"label"`
}

// Client 远程传输协议客户端接口
type Client interface {
	// Login 使用存储的凭证登录，换取本次会话使用的Bearer凭证
	// 登录失败属于会话级致命错误，协调器不会进入分块循环
	Login(ctx context.Context) (string, error)

	// UploadTaxpayerChunk 上传一个纳税人记录分块
	// 单次multipart请求，2xx表示整个分块被接收，其余情况整个分块视为失败
	UploadTaxpayerChunk(ctx context.Context, token string, records []database.Taxpayer) error

	// UploadParcelChunk 上传一个宗地记录分块
	UploadParcelChunk(ctx context.Context, token string, records []database.Parcel) error

	// FetchReferenceData 拉取后端权威参照数据
	// 返回表名到行列表的映射
	FetchReferenceData(ctx context.Context, token string) (map[string][]ReferenceRow, error)
}

// httpClient 远程传输协议客户端实现
type httpClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewClient 创建远程传输协议客户端实例
// 参数:
//   cfg: 远程后端配置，包含基础地址、登录凭证和超时时间
// 返回:
//   Client: 客户端接口实例
func NewClient(cfg config.RemoteConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &httpClient{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: timeout},
	}
}

// loginRequest 登录请求体
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse 登录响应体
type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login 使用存储的凭证登录，换取会话凭证
func (c *httpClient) Login(ctx context.Context) (string, error) {
	logger.Infof("[传输客户端] 正在登录后端: %s", c.baseURL)

	body, err := json.Marshal(loginRequest{Username: c.username, Password: c.password})
	if err != nil {
		return "", errors.WrapByCode(errors.ErrTransferPayload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", errors.WrapByCode(errors.ErrAuthLoginFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// 登录阶段的连接错误同样中止会话，没有有效凭证不会尝试任何分块
		return "", errors.WrapByCode(errors.ErrAuthLoginFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Errorf("[传输客户端] 登录被拒绝, 状态码: %d", resp.StatusCode)
		return "", errors.NewByCode(errors.ErrAuthLoginFailed).
			WithDetails(fmt.Sprintf("login rejected with status %d", resp.StatusCode))
	}

	var loginResp loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return "", errors.WrapByCode(errors.ErrAuthLoginFailed, err)
	}
	if loginResp.AccessToken == "" {
		return "", errors.NewByCode(errors.ErrAuthLoginFailed).WithDetails("empty access token")
	}

	logger.Info("[传输客户端] 登录成功，已获取会话凭证")
	return loginResp.AccessToken, nil
}

// attachmentPart 分块内的一个附件部分
// 字段名携带所属记录的本地ID和序号，接收端不依赖部分顺序做关联
type attachmentPart struct {
	OwnerID uint
	Index   int
	Path    string
}

// UploadTaxpayerChunk 上传一个纳税人记录分块
func (c *httpClient) UploadTaxpayerChunk(ctx context.Context, token string, records []database.Taxpayer) error {
	payloads := make([]taxpayerPayload, 0, len(records))
	var attachments []attachmentPart
	for _, record := range records {
		payloads = append(payloads, newTaxpayerPayload(&record))
		for i, path := range record.Attachments {
			attachments = append(attachments, attachmentPart{OwnerID: record.ID, Index: i, Path: path})
		}
	}

	return c.uploadChunk(ctx, token, "/api/v1/export/taxpayers", payloads, attachments)
}

// UploadParcelChunk 上传一个宗地记录分块
func (c *httpClient) UploadParcelChunk(ctx context.Context, token string, records []database.Parcel) error {
	payloads := make([]parcelPayload, 0, len(records))
	var attachments []attachmentPart
	for _, record := range records {
		payloads = append(payloads, newParcelPayload(&record))
		for i, path := range record.Attachments {
			attachments = append(attachments, attachmentPart{OwnerID: record.ID, Index: i, Path: path})
		}
	}

	return c.uploadChunk(ctx, token, "/api/v1/export/parcels", payloads, attachments)
}

// uploadChunk 将一个分块打包为multipart请求并发送
// records部分为JSON数组，每个附件单独一个文件部分
func (c *httpClient) uploadChunk(ctx context.Context, token, endpoint string, records interface{}, attachments []attachmentPart) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		// 序列化失败属于缺陷，但与其他失败同样上报，保证状态账仍然记录本次尝试
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	field, err := writer.CreateFormField("records")
	if err != nil {
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}
	if _, err := field.Write(recordsJSON); err != nil {
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}

	for _, attachment := range attachments {
		if err := c.writeAttachmentPart(writer, attachment); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return errors.WrapByCode(errors.ErrTransferConnection, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	logger.Infof("[传输客户端] 正在上传分块: %s, 附件数: %d", endpoint, len(attachments))

	resp, err := c.client.Do(req)
	if err != nil {
		return classifyNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		logger.Infof("[传输客户端] 分块上传成功: %s", endpoint)
		return nil
	}

	// 凭证在会话中途失效时中止会话，不做静默重新登录
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		logger.Errorf("[传输客户端] 会话凭证失效, 状态码: %d", resp.StatusCode)
		return errors.NewByCode(errors.ErrAuthTokenExpired).
			WithDetails(fmt.Sprintf("credential rejected with status %d", resp.StatusCode))
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	logger.Errorf("[传输客户端] 分块被后端拒绝, 状态码: %d, 响应: %s", resp.StatusCode, string(snippet))
	return errors.NewByCode(errors.ErrTransferRejected).
		WithDetails(fmt.Sprintf("status %d: %s", resp.StatusCode, string(snippet)))
}

// writeAttachmentPart 写入一个附件文件部分
// 附件文件在磁盘上缺失时跳过该部分，记录本身仍随分块导出
func (c *httpClient) writeAttachmentPart(writer *multipart.Writer, attachment attachmentPart) error {
	file, err := os.Open(attachment.Path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("[传输客户端] 附件文件不存在，跳过: %s (记录ID: %d)", attachment.Path, attachment.OwnerID)
			return nil
		}
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}
	defer file.Close()

	fieldName := fmt.Sprintf("attachment_%d_%d", attachment.OwnerID, attachment.Index)
	part, err := writer.CreateFormFile(fieldName, filepath.Base(attachment.Path))
	if err != nil {
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return errors.WrapByCode(errors.ErrTransferPayload, err)
	}
	return nil
}

// FetchReferenceData 拉取后端权威参照数据
func (c *httpClient) FetchReferenceData(ctx context.Context, token string) (map[string][]ReferenceRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/reference", nil)
	if err != nil {
		return nil, errors.WrapByCode(errors.ErrReferenceFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	logger.Info("[传输客户端] 正在拉取参照数据")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.WrapByCode(errors.ErrReferenceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.NewByCode(errors.ErrAuthTokenExpired).
			WithDetails(fmt.Sprintf("credential rejected with status %d", resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewByCode(errors.ErrReferenceFetch).
			WithDetails(fmt.Sprintf("reference endpoint returned status %d", resp.StatusCode))
	}

	var tables map[string][]ReferenceRow
	if err := json.NewDecoder(resp.Body).Decode(&tables); err != nil {
		return nil, errors.WrapByCode(errors.ErrReferenceFetch, err)
	}

	logger.Infof("[传输客户端] 参照数据拉取成功, 表数: %d", len(tables))
	return tables, nil
}

// classifyNetworkError 区分超时与其他连接错误
// 两类都记入状态账等待下次会话重试，区分只为错误码与日志
func classifyNetworkError(err error) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return errors.WrapByCode(errors.ErrTransferTimeout, err)
	}
	return errors.WrapByCode(errors.ErrTransferConnection, err)
}
