package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type usersResult struct {
	Users []model.User `json:"users"`
	Total int          `json:"total"`
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users that tickets can be assigned to",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		users, err := getService(cmd).ListUsers(cmd.Context())
		if err != nil {
			return wrapErr(err, "listing users")
		}

		w.Success(usersResult{Users: users, Total: len(users)}, render.RenderUsers(users))
		return nil
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Add a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		avatar, _ := cmd.Flags().GetString("avatar")

		u, err := getService(cmd).CreateUser(cmd.Context(), model.CreateUserInput{Name: name, Email: email, Avatar: avatar})
		if err != nil {
			return wrapErr(err, "creating user")
		}

		w.Success(u, fmt.Sprintf("Created user %s <%s>", u.Name, u.Email))
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().String("name", "", "Display name")
	usersCreateCmd.Flags().String("email", "", "Email address (unique)")
	usersCreateCmd.Flags().String("avatar", "", "Avatar URL")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("email")
	usersCmd.AddCommand(usersCreateCmd)
	rootCmd.AddCommand(usersCmd)
}
