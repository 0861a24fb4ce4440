package validators

import "go.mongodb.org/mongo-driver/bson"

var ResourceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"name",
			"type",
			"capacity",
			"is_active",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},

			"type": bson.M{
				"bsonType": "string",
				"enum": []string{
					"room",
					"equipment",
					"vehicle",
					"desk",
					"office",
					"other",
				},
			},

			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"is_active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
