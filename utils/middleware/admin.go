package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/wiproedx/synergeticsopenedx/model"
	"gorm.io/gorm"
)

// AdminAuditLog records the admin action after the handler ran. It must run
// after RequireAdmin.
func AdminAuditLog(db *gorm.DB, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := GetUser(c)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		// Capture the state the action is about to change
		var oldValue interface{}
		if resourceID > 0 && (c.Method() == fiber.MethodPut || c.Method() == fiber.MethodDelete || c.Method() == fiber.MethodPost) {
			switch resource {
			case "coupons":
				var coupon model.ProgramCoupon
				if err := db.First(&coupon, resourceID).Error; err == nil {
					oldValue = coupon
				}
			case "programs":
				var program model.Program
				if err := db.First(&program, resourceID).Error; err == nil {
					oldValue = program
				}
			case "orders":
				var order model.ProgramOrder
				if err := db.Omit("processor_response").First(&order, resourceID).Error; err == nil {
					oldValue = order
				}
			case "subjects":
				oldValue = snapshot(db, &model.Subject{}, resourceID)
			case "languages":
				oldValue = snapshot(db, &model.Language{}, resourceID)
			case "institutions":
				oldValue = snapshot(db, &model.Institution{}, resourceID)
			case "instructors":
				oldValue = snapshot(db, &model.Instructor{}, resourceID)
			case "signatories":
				oldValue = snapshot(db, &model.ProgramCertificateSignatory{}, resourceID)
			}
		}

		var newValue interface{}
		if body := c.Body(); len(body) > 0 {
			_ = json.Unmarshal(body, &newValue)
		}

		err := c.Next()

		oldValueJSON, _ := json.Marshal(oldValue)
		newValueJSON, _ := json.Marshal(newValue)
		entry := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			OldValue:    string(oldValueJSON),
			NewValue:    string(newValueJSON),
			StatusCode:  c.Response().StatusCode(),
			IPAddress:   strings.Clone(c.IP()),
			UserAgent:   strings.Clone(c.Get(fiber.HeaderUserAgent)),
			Description: c.Method() + " " + c.Path(),
		}

		// The fiber context is recycled once the handler returns, so only
		// the copied entry crosses into the goroutine.
		go func(entry model.AdminAuditLog) {
			if err := db.Create(&entry).Error; err != nil {
				log.Errorf("Failed to write admin audit log for %s: %v", entry.Action, err)
			}
		}(entry)

		return err
	}
}

// snapshot loads the row with id into dest, or returns nil when it is gone.
func snapshot(db *gorm.DB, dest interface{}, id uint) interface{} {
	if err := db.First(dest, id).Error; err != nil {
		return nil
	}
	return dest
}
