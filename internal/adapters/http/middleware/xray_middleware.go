package middleware

import (
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/labstack/echo/v4"
)

// XRayMiddleware opens one segment per request and records the request line
// and response status on it.
func XRayMiddleware(segmentName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			ctx, seg := xray.BeginSegment(r.Context(), segmentName)
			seg.Lock()
			seg.GetHTTP().GetRequest().Method = r.Method
			seg.GetHTTP().GetRequest().URL = r.URL.String()
			seg.GetHTTP().GetRequest().UserAgent = r.UserAgent()
			seg.GetHTTP().GetRequest().ClientIP = c.RealIP()
			seg.Unlock()

			c.SetRequest(r.Clone(ctx))
			err := next(c)

			status := responseStatus(c, err)
			seg.Lock()
			seg.GetHTTP().GetResponse().Status = status
			if status >= 500 {
				seg.Fault = true
			} else if status >= 400 {
				seg.Error = true
			}
			seg.Unlock()
			seg.Close(err)
			return err
		}
	}
}
