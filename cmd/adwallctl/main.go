// adwallctl 广告墙命令行工具
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"adwall/internal/client"
	"adwall/pkg/logger"
)

var (
	serverURL string
	password  string
	output    string
	timeout   time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "adwallctl",
	Short: "广告墙命令行工具",
	Long: `adwallctl 通过 HTTP 接口管理广告墙。

子命令:
  ads list      按排序查看广告
  ads heat      热度加一
  ads copy      复制广告
  ads delete    删除广告
  bid           乐观更新出价并等待确认
  validate      按表单配置校验 YAML 描述的广告
  types         查看广告类型`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("ADWALL_SERVER", "http://127.0.0.1:3000"), "服务端地址")
	rootCmd.PersistentFlags().StringVar(&password, "password", os.Getenv("ADWALL_ADMIN_PASSWORD"), "管理员密码，管理接口需要")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "输出格式: yaml 或 json")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Second, "单次命令超时")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(adsCmd, bidCmd, validateCmd, typesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newClient 创建客户端，配置了密码时先登录
func newClient(ctx context.Context) (*client.Client, error) {
	c := client.NewClient(serverURL)
	if password != "" {
		if err := c.Login(ctx, password); err != nil {
			return nil, fmt.Errorf("登录失败: %w", err)
		}
	}
	return c, nil
}

func newLogger() *logger.Logger {
	if verbose {
		return logger.NewLogger("debug")
	}
	return logger.NewNop()
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// printOut 按 JSON 标签输出，yaml 格式先经过 JSON 转换以保持字段名一致
func printOut(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if output == "json" {
		var buf interface{}
		if err := json.Unmarshal(data, &buf); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(buf)
	}
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}
