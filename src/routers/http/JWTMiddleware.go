package http

import (
	"time"

	jwt "github.com/appleboy/gin-jwt/v2"
	"github.com/gin-gonic/gin"
	jwtgo "github.com/golang-jwt/jwt/v4"

	"github.com/kanikamera/agent/src/config"
	"github.com/kanikamera/agent/src/models"
)

// JWTSecret resolves the HMAC key used to sign and verify API tokens.
// It can be set through the config file or AGENT_JWT_SECRET.
func JWTSecret(c models.Config) []byte {
	if c.JWTSecret != "" {
		return []byte(c.JWTSecret)
	}
	return []byte("TOBECHANGED")
}

func JWTMiddleWare(configDirectory string, configuration *models.Configuration) jwt.GinJWTMiddleware {

	identityKey := "id"
	authMiddleware := jwt.GinJWTMiddleware{
		Realm:       "kanikamera",
		Key:         JWTSecret(configuration.Config),
		Timeout:     time.Hour * 24,
		MaxRefresh:  time.Hour * 24 * 7,
		IdentityKey: identityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if v, ok := data.(*models.User); ok {
				return jwt.MapClaims{
					identityKey: v.Username,
					"role":      v.Role,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(c *gin.Context) interface{} {
			claims := jwt.ExtractClaims(c)
			return &models.User{
				Username: claims[identityKey].(string),
				Role:     claims["role"].(string),
			}
		},
		Authenticator: func(c *gin.Context) (interface{}, error) {
			var login models.Authentication
			if err := c.ShouldBind(&login); err != nil {
				return "", jwt.ErrMissingLoginValues
			}

			userConfig := config.ReadUserConfig(configDirectory)
			if login.Username == userConfig.Username && login.Password == userConfig.Password {
				return &models.User{
					Username: login.Username,
					Role:     userConfig.Role,
				}, nil
			}
			return nil, jwt.ErrFailedAuthentication
		},
		LoginResponse: func(c *gin.Context, code int, token string, expire time.Time) {
			claims := jwtgo.MapClaims{}
			jwtgo.ParseWithClaims(token, claims, func(token *jwtgo.Token) (interface{}, error) {
				return JWTSecret(configuration.Config), nil
			})
			username, _ := claims[identityKey].(string)
			role, _ := claims["role"].(string)
			c.JSON(200, models.Authorization{
				Code:     code,
				Token:    token,
				Expire:   expire.Format(time.RFC3339),
				Username: username,
				Role:     role,
			})
		},
		Authorizator: func(data interface{}, c *gin.Context) bool {
			_, ok := data.(*models.User)
			return ok
		},
		Unauthorized: func(c *gin.Context, code int, message string) {
			c.JSON(code, models.APIResponse{
				Message: message,
			})
		},
		TokenLookup:   "header: Authorization, query: token, cookie: jwt",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
	}
	return authMiddleware
}
