/*
Package avatar resolves an identity (an email address) to a displayable avatar.

A remotely hosted, Gravatar compatible avatar is used only when its existence
has been confirmed by the tiered validation cache. Otherwise a deterministic
procedural icon (wavatar, monsterid, retro or rings) is generated from the
identity hash and persisted in a file cache.

	svc, err := avatar.New(validator, files, avatar.Options{
		Generators: gens,
		Default:    generator.Rings,
		RemoteURL:  "https://secure.gravatar.com/avatar/{hash}?s={size}",
	})
	av, err := svc.Resolve(ctx, validation.NewMemo(), avatar.Request{
		Email:     "jane@example.org",
		Size:      80,
		UseRemote: true,
	})

The building blocks live in their own packages: identity (hashing), hsl
(color conversion), canvas and imop (raster layers), shape (vector scenes),
generator (the icon generators), validation (remote existence checks), store
(durable validation tier) and filestore (generated icon cache).
*/
package avatar
