package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"adwall/internal/formschema"
)

var (
	validateType string
	validateKey  string
)

var validateCmd = &cobra.Command{
	Use:   "validate <ad.yaml>",
	Short: "按广告类型的表单配置校验 YAML 描述的广告",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		candidate, err := parseCandidate(data)
		if err != nil {
			return fmt.Errorf("解析 %s 失败: %w", args[0], err)
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		c, err := newClient(ctx)
		if err != nil {
			return err
		}
		schema, err := c.FormConfig(ctx, validateType, validateKey)
		if err != nil {
			return err
		}

		res := formschema.NewValidator(newLogger()).ValidateSchema(schema, candidate)
		if err := printOut(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if !res.Valid {
			return fmt.Errorf("校验未通过: %d 项错误", len(res.Errors))
		}
		return nil
	},
}

// parseCandidate 把 YAML 文档转换为待校验记录，ext_info 与 video_ids 单独取出
func parseCandidate(data []byte) (formschema.Candidate, error) {
	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return formschema.Candidate{}, err
	}
	c := formschema.Candidate{Values: values}
	if ext, ok := values["ext_info"].(map[string]interface{}); ok {
		c.Ext = ext
	}
	switch ids := values["video_ids"].(type) {
	case []interface{}:
		for _, id := range ids {
			if s, ok := id.(string); ok && s != "" {
				c.VideoIDs = append(c.VideoIDs, s)
			}
		}
	case string:
		if ids != "" {
			c.VideoIDs = []string{ids}
		}
	}
	return c, nil
}

func init() {
	validateCmd.Flags().StringVarP(&validateType, "type", "t", "", "广告类型编码")
	validateCmd.Flags().StringVar(&validateKey, "config-key", formschema.DefaultConfigKey, "表单配置键")
	_ = validateCmd.MarkFlagRequired("type")
}
