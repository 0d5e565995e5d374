package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/wiproedx/synergeticsopenedx/model"
	"github.com/wiproedx/synergeticsopenedx/utils/response"
	"gorm.io/gorm"
)

// ListAuditLogs retrieves admin audit logs with pagination
// GET /admin/audit-logs?action=&resource=&resource_id=&admin_id=&since=
func ListAuditLogs(c *fiber.Ctx, db *gorm.DB) error {
	page, limit := pageParams(c)

	query := db.WithContext(c.UserContext()).Model(&model.AdminAuditLog{})
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if id := queryID(c, "resource_id"); id != 0 {
		query = query.Where("resource_id = ?", id)
	}
	if id := queryID(c, "admin_id"); id != 0 {
		query = query.Where("admin_id = ?", id)
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return response.BadRequest(c, "since must be an RFC 3339 timestamp")
		}
		query = query.Where("created_at >= ?", t)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count audit logs")
	}

	var logs []model.AdminAuditLog
	offset := (page - 1) * limit
	if err := query.Preload("Admin").Offset(offset).Limit(limit).Order("created_at DESC").Find(&logs).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch audit logs")
	}

	return response.Paginated(c, logs, response.CalculatePagination(page, limit, total))
}

// GetAuditLog retrieves a specific audit log entry
// GET /admin/audit-logs/:id
func GetAuditLog(c *fiber.Ctx, db *gorm.DB) error {
	logID, ok := parseID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid log ID")
	}

	var entry model.AdminAuditLog
	if err := db.WithContext(c.UserContext()).Preload("Admin").First(&entry, logID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Audit log not found")
		}
		return response.InternalServerError(c, "Failed to fetch audit log")
	}

	return response.SuccessWithMessage(c, "Audit log retrieved successfully", entry)
}
