package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/nao1215/mobilenotify/pkg/httpclient"
	"github.com/spf13/cobra"
)

// sendResponse は通知作成APIのレスポンス。
type sendResponse struct {
	Status         string `json:"status"`
	NotificationID int64  `json:"notification_id"`
	Message        string `json:"message"`
}

func newSendCmd(opts *globalOptions) *cobra.Command {
	var (
		userID           int64
		title            string
		message          string
		data             string
		notificationType string
		priority         string
		baseURL          string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create a notification through a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Client.BaseURL
			}

			form := url.Values{
				"mobile_user_id":    {strconv.FormatInt(userID, 10)},
				"title":             {title},
				"message":           {message},
				"notification_type": {notificationType},
				"priority":          {priority},
			}
			if data != "" {
				form.Set("data", data)
			}

			requestID := uuid.NewString()
			ctx := httpclient.WithRequestID(cmd.Context(), requestID)

			client := httpclient.New(baseURL, httpclient.WithTimeout(cfg.Client.Timeout))
			var resp sendResponse
			if err := client.PostForm(ctx, "/api/v1/notifications", form, &resp); err != nil {
				return fmt.Errorf("sending notification (request_id=%s): %w", requestID, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "notification_id=%d message=%s request_id=%s\n", resp.NotificationID, resp.Message, requestID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "mobile user id (required)")
	cmd.Flags().StringVar(&title, "title", "", "notification title (required)")
	cmd.Flags().StringVar(&message, "message", "", "notification message (required)")
	cmd.Flags().StringVar(&data, "data", "", "optional payload, JSON or plain text")
	cmd.Flags().StringVar(&notificationType, "type", "general", "general, job, alert or system")
	cmd.Flags().StringVar(&priority, "priority", "normal", "low, normal, high or urgent")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "server base URL (default from client.base_url)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
