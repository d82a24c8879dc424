package middlewares

import (
	"strings"

	"zenzspa.app/configs/configsapp"
	"zenzspa.app/models"
	"zenzspa.app/pkg/auth"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware Bearer token'ı doğrular ve kullanıcı bilgisini locals'a koyar.
func AuthMiddleware(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "kimlik doğrulama gerekli"})
	}
	claims, err := auth.ParseValidate(strings.TrimPrefix(header, "Bearer "), configsapp.GetApp().JWTSecret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "geçersiz veya süresi dolmuş token"})
	}
	userID, err := claims.UserID()
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "geçersiz token"})
	}

	c.Locals("userID", userID)
	c.Locals("userRole", models.UserRole(claims.Role))
	return c.Next()
}

// RequireStaff yalnızca personel ve admin erişimine izin verir.
func RequireStaff() fiber.Handler {
	return requireRoles(models.RoleStaff, models.RoleAdmin)
}

// RequireAdmin yalnızca admin erişimine izin verir.
func RequireAdmin() fiber.Handler {
	return requireRoles(models.RoleAdmin)
}

func requireRoles(roles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("userRole").(models.UserRole)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "kimlik doğrulama gerekli"})
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "bu işlem için yetkiniz yok"})
	}
}

// CurrentUserID locals'taki kullanıcı ID'sini döndürür (AuthMiddleware sonrası).
func CurrentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
