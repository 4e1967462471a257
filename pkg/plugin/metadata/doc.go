// Package metadata holds process-wide plugin metadata.
//
// Plugins describe the settings their profiles accept: which keys are
// required and which are secure. Config validation consults these stores
// when plugin information is registered and skips plugin checks otherwise.
//
//	metadata.Artifacts().SetPluginInfo(&metadata.ArtifactPluginInfo{
//	    PluginID: "cd.go.s3",
//	    StoreSettings: metadata.PluginSettings{
//	        {Key: "Bucket", Required: true},
//	        {Key: "SecretKey", Secure: true},
//	    },
//	})
//
// Role assignments made by authorization plugins at login time are kept in
// the PluginRoleUsersStore.
package metadata
