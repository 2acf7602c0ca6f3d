package serverutils

import (
	"regexp"

	"soulscript-chat-be/internal/entity"

	"github.com/gofiber/fiber/v2"
)

const (
	DeviceIdHeader = "X-Device-Id"
	DeviceIdCookie = "device_id"
)

var deviceIdPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// DeviceMiddleware identifies anonymous callers by the device id the client
// generated, taken from the header first and the cookie second.
func DeviceMiddleware(groupScope string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		deviceId := ctx.Get(DeviceIdHeader)
		if deviceId == "" {
			deviceId = ctx.Cookies(DeviceIdCookie)
		}
		if !deviceIdPattern.MatchString(deviceId) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, "Missing or invalid device id"))
		}

		ctx.Locals("device_id", deviceId)
		ctx.Locals(principalKey, entity.NewDevicePrincipal(deviceId, groupScope))
		return ctx.Next()
	}
}
