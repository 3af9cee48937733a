package onenet_test

import (
	"context"
	"fmt"

	"github.com/nerrad567/onenet-console/internal/onenet"
)

func ExampleClient_QueryDevices() {
	client := onenet.NewClient(onenet.ClientConfig{
		V1BaseURL: "http://api.onenet.hk.chinamobile.com",
		V2BaseURL: "https://www.onenet.hk.chinamobile.com:2616",
	})
	auth := onenet.AuthContext{Version: onenet.VersionV1, APIKey: "api-key"}

	page, _, err := client.QueryDevices(context.Background(), auth, onenet.DeviceQuery{Page: 1, PerPage: 30})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(page.TotalCount, len(page.Devices))
}
